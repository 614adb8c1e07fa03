// Package utils holds the shared CLI plumbing: the Viper backed
// ConfigurationLoader, the zap LoggerFactory, the context accessor that
// carries the resolved configuration file, and a flushing writer for
// summary output.
package utils
