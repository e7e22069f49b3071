package bluelink

import "fmt"

// Region selects the Bluelink deployment the account is registered with. The numeric
// values match the region ids used by the vendor's mobile applications.
type Region int

const (
	RegionEurope Region = iota + 1
	RegionCanada
	RegionUSA
	RegionChina
	RegionAustralia
)

// Brand selects the vendor backend within a region.
type Brand int

const (
	BrandKia Brand = iota + 1
	BrandHyundai
	BrandGenesis
)

var regionNames = map[Region]string{
	RegionEurope:    "europe",
	RegionCanada:    "canada",
	RegionUSA:       "usa",
	RegionChina:     "china",
	RegionAustralia: "australia",
}

var brandNames = map[Brand]string{
	BrandKia:     "kia",
	BrandHyundai: "hyundai",
	BrandGenesis: "genesis",
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("region(%d)", int(r))
}

func (b Brand) String() string {
	if name, ok := brandNames[b]; ok {
		return name
	}
	return fmt.Sprintf("brand(%d)", int(b))
}

// RegionFromID validates a numeric region id from configuration.
func RegionFromID(id int) (Region, error) {
	r := Region(id)
	if _, ok := regionNames[r]; !ok {
		return 0, fmt.Errorf("unknown region id %d", id)
	}
	return r, nil
}

// BrandFromID validates a numeric brand id from configuration.
func BrandFromID(id int) (Brand, error) {
	b := Brand(id)
	if _, ok := brandNames[b]; !ok {
		return 0, fmt.Errorf("unknown brand id %d", id)
	}
	return b, nil
}

var brandDomains = map[Brand]string{
	BrandKia:     "kia.com",
	BrandHyundai: "hyundai.com",
	BrandGenesis: "genesis.com",
}

var regionPrefixes = map[Region]string{
	RegionEurope:    "prd.eu-ccapi",
	RegionCanada:    "prd.ca-ccapi",
	RegionUSA:       "prd.us-ccapi",
	RegionChina:     "prd.cn-ccapi",
	RegionAustralia: "prd.au-ccapi",
}

// APIHost returns the backend hostname for a region and brand combination.
func APIHost(region Region, brand Brand) (string, error) {
	prefix, ok := regionPrefixes[region]
	if !ok {
		return "", fmt.Errorf("unknown region %s", region)
	}
	domain, ok := brandDomains[brand]
	if !ok {
		return "", fmt.Errorf("unknown brand %s", brand)
	}
	return fmt.Sprintf("%s.%s:8080", prefix, domain), nil
}
