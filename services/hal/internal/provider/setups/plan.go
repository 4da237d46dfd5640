package setups

// ResourcePlan specifies wiring and operating parameters chosen by a setup.
// Providers consume this plan to instantiate resource owners.
type ResourcePlan struct {
	SPI []SPIPlan

	// Highest GPIO number the board exposes; 0 selects the provider default.
	GPIOMax int
}

type SPIPlan struct {
	ID   string // e.g. "spi0"
	SCK  int    // GPIO number
	SDO  int    // GPIO number (controller out)
	SDI  int    // GPIO number, -1 when unused
	Hz   uint32 // bus frequency
	Mode uint8  // CPOL/CPHA, 0..3
}
