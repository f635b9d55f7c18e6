package model

// GeoTier buckets how directly an organization's footprint matches the crisis location.
type GeoTier int

// Geographic tiers. GeoTierExcluded is never surfaced.
const (
	GeoTierDirect      GeoTier = 1 // operates in the crisis country
	GeoTierNearby      GeoTier = 2 // neighbor or same-region country
	GeoTierRapidGlobal GeoTier = 3 // global, rapid deployment
	GeoTierGlobal      GeoTier = 4 // global, partner-network model
	GeoTierExcluded    GeoTier = 5
)

// CauseLevel buckets how specifically an organization's mission matches the crisis.
type CauseLevel int

// Cause match levels. CauseLevelNone is never surfaced.
const (
	CauseLevelExact    CauseLevel = 1 // primary cause and a specific need
	CauseLevelPrimary  CauseLevel = 2 // primary cause only
	CauseLevelAdjacent CauseLevel = 3 // adjacent cause
	CauseLevelNone     CauseLevel = 4
)

// NonprofitCandidate is an organization returned by the nonprofit directory.
type NonprofitCandidate struct {
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	LocationAddress string   `json:"location_address,omitempty"`
	WebsiteURL      string   `json:"website_url,omitempty"`
	EIN             string   `json:"ein,omitempty"`
	Causes          []string `json:"causes,omitempty"`
	LogoURL         string   `json:"logo_url,omitempty"`
	NTEECode        string   `json:"ntee_code,omitempty"`

	// Declared profile. When empty the reranker derives these from the
	// address and description.
	OperatingCountries []string `json:"operating_countries,omitempty"`
	Global             *bool    `json:"global,omitempty"`
	Flexibility        *int     `json:"flexibility,omitempty"`
	AddressedNeeds     []string `json:"addressed_needs,omitempty"`
}

// Score holds the weighted ranking sub-scores of a candidate.
type Score struct {
	Geo     float64 `json:"geo"`
	Cause   float64 `json:"cause"`
	Trust   float64 `json:"trust"`
	Quality float64 `json:"quality"`
	Total   float64 `json:"total"`
}

// Score weights.
const (
	WeightGeo     = 0.40
	WeightCause   = 0.35
	WeightTrust   = 0.15
	WeightQuality = 0.10
)

// ComputeTotal returns the weighted sum of the sub-scores.
func (s Score) ComputeTotal() float64 {
	return WeightGeo*s.Geo + WeightCause*s.Cause + WeightTrust*s.Trust + WeightQuality*s.Quality
}

// NonprofitRanked is a candidate that survived every reranking gate.
type NonprofitRanked struct {
	NonprofitCandidate

	GeoTier         GeoTier      `json:"geo_tier"`
	CauseMatchLevel CauseLevel   `json:"cause_match_level"`
	Score           Score        `json:"score"`
	Reasons         []string     `json:"reasons"`
	TrustScore      *float64     `json:"trust_score,omitempty"`
	VettedStatus    VettedStatus `json:"vetted_status"`
	SignalSource    string       `json:"signal_source,omitempty"`
	Category        string       `json:"category,omitempty"`
}

// ProfileDetail is the full directory profile fetched during enrichment.
type ProfileDetail struct {
	LocationAddress string   `json:"location_address,omitempty"`
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	Country         string   `json:"country,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	IsDisbursable   bool     `json:"is_disbursable"`
	ProfileURL      string   `json:"profile_url"`
	NTEECode        string   `json:"ntee_code,omitempty"`
	NTEEMeaning     string   `json:"ntee_meaning,omitempty"`
	DescriptionLong string   `json:"description_long,omitempty"`
}

// EnrichedNonprofit is a ranked candidate after the detail fetch.
type EnrichedNonprofit struct {
	NonprofitRanked

	Enriched        bool           `json:"enriched"`
	EnrichmentError string         `json:"enrichment_error,omitempty"`
	Detail          *ProfileDetail `json:"detail,omitempty"`
}
