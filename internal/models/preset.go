package models

type Preset struct {
	Name        string
	Description string
	Apply       func(p *StrategyParams)
}

// Presets рынков: акции через OpenAlgo и крипто-фьючерсы.
var Presets = map[string]Preset{
	"stocks": {
		Name:        "NSE intraday",
		Description: "Акции, вход запрещён в первые 45 минут сессии",
		Apply: func(p *StrategyParams) {
			p.Leverage = 9
			p.ForbiddenWindow = TimeWindow{
				Enabled:  true,
				Start:    "09:15",
				End:      "10:00",
				Location: "Asia/Kolkata",
			}
		},
	},
	"crypto": {
		Name:        "Crypto futures",
		Description: "Круглосуточный рынок, без окна запрета",
		Apply: func(p *StrategyParams) {
			p.Leverage = 8
			p.ForbiddenWindow.Enabled = false
		},
	},
}

// ApplyPreset применяет пресет по имени, пустое имя и неизвестный пресет ничего не меняют.
func ApplyPreset(name string, p *StrategyParams) bool {
	pr, ok := Presets[name]
	if !ok {
		return false
	}
	pr.Apply(p)
	return true
}
