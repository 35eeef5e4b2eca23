package models

type BrokerRole string

const (
	RolePrimary BrokerRole = "primary"
	RoleBackup  BrokerRole = "backup"
)

type BrokerKind string

const (
	BrokerSimulated BrokerKind = "sim"
	BrokerPaper     BrokerKind = "paper"
	BrokerOpenAlgo  BrokerKind = "openalgo"
	BrokerOKX       BrokerKind = "okx"
)

// BrokerConfig описание бэкенда исполнения. CredentialsRef это ссылка
// (env:NAME или vault:path), сами секреты в конфиге не лежат.
type BrokerConfig struct {
	Name           string     `yaml:"name" json:"name"`
	Kind           BrokerKind `yaml:"kind" json:"kind"`
	Endpoint       string     `yaml:"endpoint" json:"endpoint"`
	CredentialsRef string     `yaml:"credentials_ref" json:"credentials_ref"`
	Role           BrokerRole `yaml:"role" json:"role"`
	Exchange       string     `yaml:"exchange" json:"exchange"`
	Product        string     `yaml:"product" json:"product"`
}
