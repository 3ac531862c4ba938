package offer

// Config is the subset of the configuration surface (spec §6) that
// the core itself consumes. It is validated by internal/config before
// being handed to NewProcessor.
type Config struct {
	// MaxInstancesPerOffer is the hard per-offer ops cap.
	MaxInstancesPerOffer int `yaml:"max_instances_per_offer" validate:"min=1"`
	// MaxInstancesPerOfferFlagName is a diagnostic string included in
	// user-facing log messages when the cap trips.
	MaxInstancesPerOfferFlagName string `yaml:"max_instances_per_offer_flag_name"`
}
