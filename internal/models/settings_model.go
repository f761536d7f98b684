package models

// BrandAutomation is a brand joined with its automation settings. Brands
// without a settings row read as disabled in UTC.
type BrandAutomation struct {
	Brand
	IsEnabled bool   `db:"is_enabled"`
	Timezone  string `db:"timezone"`
	RunTime   string `db:"run_time"` // local clock time, HH:MM or HH:MM:SS
}
