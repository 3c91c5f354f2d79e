package report

// Default report parameters, taken from the homework questions.
const (
	DefaultProvider = "Snapchat"
	DefaultDate     = "2019-07-03"
	DefaultProperty = "politics"
	DefaultValue    = "moderate"
	DefaultTopAds   = 5
)

type PropertyCount struct {
	Property string `json:"property"`
	Count    int64  `json:"count"`
}

type AdCount struct {
	AdID  string `json:"adId"`
	Count int64  `json:"count"`
}
