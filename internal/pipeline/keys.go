package pipeline

import (
	"fmt"

	"github.com/bcgov/sfms-advisory/internal/domain"
)

// RasterKeys are the object storage keys one invocation reads. HFI and
// snow are produced per run by SFMS; fuel type, elevation, and TPI are
// static layers refreshed out of band.
type RasterKeys struct {
	HFI       string
	Snow      string
	FuelType  string
	Elevation string
	TPI       string
}

// DeriveKeys maps a run identity onto the SFMS upload layout:
// per-run layers live under <prefix>/<run_type>/<run_date>/, named by
// the for-date; static layers live under <prefix>/static/.
func DeriveKeys(prefix string, identity domain.RunIdentity) RasterKeys {
	runDate := identity.RunDatetime.UTC().Format("2006-01-02")
	forDate := identity.ForDate.Format("20060102")
	return RasterKeys{
		HFI:       fmt.Sprintf("%s/%s/%s/hfi%s.asc", prefix, identity.RunType, runDate, forDate),
		Snow:      fmt.Sprintf("%s/%s/%s/snow%s.asc", prefix, identity.RunType, runDate, forDate),
		FuelType:  fmt.Sprintf("%s/static/fbp.asc", prefix),
		Elevation: fmt.Sprintf("%s/static/dem.asc", prefix),
		TPI:       fmt.Sprintf("%s/static/tpi.asc", prefix),
	}
}
