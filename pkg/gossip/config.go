package gossip

import "fmt"

// Config bundles the tunable constants of the protocol. Zero values are
// never valid configuration - Validate fails fast rather than clamping,
// since a bad cap or a K >= 1 is a programmer error, not a runtime
// condition the protocol should tolerate.
type Config struct {
	ViewMax     int
	SubsMax     int
	UnsubsMax   int
	EventsMax   int
	EventIDsMax int
	ArchivedMax int

	// UnsubsValidity is the number of ticks an unSubs entry survives
	// before it is eligible for expiry-based trimming.
	UnsubsValidity int64

	// LongAgo is the per-origin age gap beyond which an event is
	// considered stale relative to a fresher sibling from the same
	// origin (stage A of trimEvents).
	LongAgo int

	// K biases selectProcess toward high-frequency entries. Must satisfy
	// 0 <= K < 1 for the eviction loop to terminate with probability 1.
	K float64

	// F is the gossip fanout: number of distinct peers targeted per round.
	F int

	// KRecovery is the number of ticks a MissingEvent waits before being
	// promoted to an ActiveRetrieveRequest.
	KRecovery int64

	// RecoveryTimeout is the number of ticks an ActiveRetrieveRequest
	// waits at a stage before escalating.
	RecoveryTimeout int64

	// MessageMaxDelay bounds the random delivery delay when !Sync.
	MessageMaxDelay int64

	// Sync selects deterministic 1-tick delivery (true) vs a random
	// 1..MessageMaxDelay delay (false).
	Sync bool

	AgeBasedMessagePurging          bool
	FrequencyBasedMembershipPurging bool
}

// DefaultConfig mirrors the example configuration used throughout the
// spec's end-to-end scenarios.
func DefaultConfig() Config {
	return Config{
		ViewMax:                         5,
		SubsMax:                         5,
		UnsubsMax:                       5,
		EventsMax:                       5,
		EventIDsMax:                     5,
		ArchivedMax:                     10,
		UnsubsValidity:                  100,
		LongAgo:                         100,
		K:                               0.5,
		F:                               3,
		KRecovery:                       20,
		RecoveryTimeout:                 20,
		MessageMaxDelay:                 1,
		Sync:                            true,
		AgeBasedMessagePurging:          true,
		FrequencyBasedMembershipPurging: true,
	}
}

// Validate fails fast on construction errors per spec §7.
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"ViewMax":     c.ViewMax,
		"SubsMax":     c.SubsMax,
		"UnsubsMax":   c.UnsubsMax,
		"EventsMax":   c.EventsMax,
		"EventIDsMax": c.EventIDsMax,
		"ArchivedMax": c.ArchivedMax,
	} {
		if v <= 0 {
			return fmt.Errorf("gossip: %s must be > 0, got %d", name, v)
		}
	}
	if c.F < 0 {
		return fmt.Errorf("gossip: F must be >= 0, got %d", c.F)
	}
	if c.K < 0 || c.K >= 1 {
		return fmt.Errorf("gossip: K must satisfy 0 <= K < 1, got %f", c.K)
	}
	if c.UnsubsValidity < 0 {
		return fmt.Errorf("gossip: UnsubsValidity must be >= 0, got %d", c.UnsubsValidity)
	}
	if c.KRecovery < 0 || c.RecoveryTimeout < 0 {
		return fmt.Errorf("gossip: KRecovery/RecoveryTimeout must be >= 0")
	}
	if !c.Sync && c.MessageMaxDelay < 1 {
		return fmt.Errorf("gossip: MessageMaxDelay must be >= 1 when Sync is false")
	}
	return nil
}
