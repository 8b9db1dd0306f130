package app

import "github.com/charlesng35/scribekeys/pkg/logger"

// serviceName tags every log entry so shared log pipelines can filter on it.
const serviceName = "scribekeys"

// ConfigureLogging builds the global logger from the server section.
func ConfigureLogging(server ServerConfig) error {
	return logger.Init(logger.Options{
		Level:   server.LogLevel,
		Format:  server.LogFormat,
		Service: serviceName,
	})
}
