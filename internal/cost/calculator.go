// Package cost counts nonprofit directory calls and estimates what they cost.
package cost

// Op names a billable directory operation.
type Op string

// Directory operations.
const (
	OpSearch  Op = "search"
	OpBrowse  Op = "browse"
	OpDetails Op = "details"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Directory DirectoryRate `yaml:"directory" mapstructure:"directory"`
}

// DirectoryRate holds the per-call price of each directory operation.
type DirectoryRate struct {
	PerSearch float64 `yaml:"per_search" mapstructure:"per_search"`
	PerBrowse float64 `yaml:"per_browse" mapstructure:"per_browse"`
	PerDetail float64 `yaml:"per_detail" mapstructure:"per_detail"`
}

// Usage counts upstream calls by operation. Cache hits are not billed.
type Usage struct {
	Search    int `json:"search"`
	Browse    int `json:"browse"`
	Details   int `json:"details"`
	CacheHits int `json:"cache_hits"`
}

// Calls returns the number of billed upstream calls.
func (u Usage) Calls() int {
	return u.Search + u.Browse + u.Details
}

// Add returns the sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		Search:    u.Search + o.Search,
		Browse:    u.Browse + o.Browse,
		Details:   u.Details + o.Details,
		CacheHits: u.CacheHits + o.CacheHits,
	}
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Call returns the price of a single call to op.
func (c *Calculator) Call(op Op) float64 {
	switch op {
	case OpSearch:
		return c.rates.Directory.PerSearch
	case OpBrowse:
		return c.rates.Directory.PerBrowse
	case OpDetails:
		return c.rates.Directory.PerDetail
	default:
		return 0
	}
}

// Estimate prices a usage record.
func (c *Calculator) Estimate(u Usage) float64 {
	return float64(u.Search)*c.rates.Directory.PerSearch +
		float64(u.Browse)*c.rates.Directory.PerBrowse +
		float64(u.Details)*c.rates.Directory.PerDetail
}

// DefaultRates returns the default pricing rates. The public directory API is
// free; these are the internal chargeback rates for quota planning.
func DefaultRates() Rates {
	return Rates{
		Directory: DirectoryRate{
			PerSearch: 0.0005,
			PerBrowse: 0.0005,
			PerDetail: 0.0002,
		},
	}
}
