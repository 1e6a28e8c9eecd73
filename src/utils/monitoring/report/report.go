package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Vault          *VaultReport          `json:"vault,omitempty"`
	Store          *StoreReport          `json:"store,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
	Gateway        *GatewayReport        `json:"gateway,omitempty"`
	Auditor        *AuditorReport        `json:"auditor,omitempty"`
}

func NewReport() *Report {
	return &Report{
		Run:            &RunReport{},
		Vault:          &VaultReport{},
		Store:          &StoreReport{},
		RedisPublisher: &RedisPublisherReport{},
		Gateway:        &GatewayReport{},
		Auditor:        &AuditorReport{},
	}
}
