package config

const (
	EnvPrefix = "ORDERDESK"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvUpstreamBaseURL = "ORDERDESK_UPSTREAM_BASE_URL"
)
