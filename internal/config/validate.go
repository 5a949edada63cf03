package config

func ValidateForRun(cfg *Config) error {
	switch cfg.StoreDriver {
	case StoreDriverRedis:
		return cfg.Redis.Validate()
	case StoreDriverMemory:
		return nil
	default:
		return ErrUnknownStoreDriver
	}
}
