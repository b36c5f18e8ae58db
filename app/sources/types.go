package sources

// CatalogFile is one YAML file in the catalog directory. A file may carry
// countries, a category with product templates, or both.
type CatalogFile struct {
	Countries []CountryConfig `yaml:"countries"`
	Category  *CategoryConfig `yaml:"category"`
	Products  []ProductConfig `yaml:"products"`
}

// CountryConfig describes one storefront country and its retailer roster.
type CountryConfig struct {
	Code       string           `yaml:"code"`
	Name       string           `yaml:"name"`
	Currency   string           `yaml:"currency"`
	Multiplier float64          `yaml:"multiplier"` // applied to USD base prices
	Retailers  []RetailerConfig `yaml:"retailers"`
}

type RetailerConfig struct {
	Name       string `yaml:"name"`
	WebsiteURL string `yaml:"website_url"`
}

type CategoryConfig struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// ProductConfig is a discovery template for one product.
type ProductConfig struct {
	Name           string                 `yaml:"name"`
	Brand          string                 `yaml:"brand"`
	Model          string                 `yaml:"model"`
	Description    string                 `yaml:"description"`
	ImageURL       string                 `yaml:"image_url"`
	BasePrice      float64                `yaml:"base_price"` // USD
	Specifications map[string]interface{} `yaml:"specifications"`
}

// Catalog is the merged content of every catalog file.
type Catalog struct {
	Countries  []CountryConfig
	Categories []CategoryEntry
}

// CategoryEntry pairs a category with its product templates.
type CategoryEntry struct {
	Category CategoryConfig
	Products []ProductConfig
}

// Observation is one discovered (product, retailer, price) tuple, the input
// unit of price ingestion.
type Observation struct {
	ProductName    string
	Brand          string
	Model          string
	Description    string
	ImageURL       string
	CategorySlug   string
	Specifications map[string]interface{}
	RetailerName   string
	RetailerURL    string
	CountryCode    string
	Price          float64
	Currency       string
	ProductURL     string
	Availability   string
}
