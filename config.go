package epidemicabm

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the TOML scenario file schema the bin/epidemicsim CLI reads:
// one struct per [section], decoded in one BurntSushi/toml pass and then
// turned into a live Context by Build. Loading production-scale
// population/contact datasets from external files is out of scope; the
// arrays below are meant for small, self-contained scenarios.
type Config struct {
	Simulation   SimulationConfig    `toml:"simulation"`
	Population   PopulationConfig    `toml:"population"`
	Healthcare   HealthcareConfig    `toml:"healthcare"`
	Disease      DiseaseConfig       `toml:"disease"`
	Intervention []InterventionConfig `toml:"intervention"`
}

// SimulationConfig holds the engine's top-level run parameters.
type SimulationConfig struct {
	Seed      int64  `toml:"seed"`
	StartDate string `toml:"start_date"`
	Days      int    `toml:"days"`
}

// PopulationConfig describes the age histogram, contacts-per-day table
// and optional day-0 seeding.
type PopulationConfig struct {
	AgeCounts  []int              `toml:"age_counts"`
	ContactRow []ContactRowConfig `toml:"contact_row"`
	Initial    InitialConditionsConfig `toml:"initial"`
}

// ContactRowConfig is one row of the source contacts-per-day table.
type ContactRowConfig struct {
	ParticipantAge int     `toml:"participant_age"`
	ContactAgeMin  int     `toml:"contact_age_min"`
	ContactAgeMax  int     `toml:"contact_age_max"`
	Place          string  `toml:"place"`
	ContactsPerDay float64 `toml:"contacts_per_day"`
}

// InitialConditionsConfig is the day-0 seeding block.
type InitialConditionsConfig struct {
	Incubating     int `toml:"incubating"`
	Ill            int `toml:"ill"`
	InWard         int `toml:"in_ward"`
	InICU          int `toml:"in_icu"`
	Dead           int `toml:"dead"`
	ConfirmedCases int `toml:"confirmed_cases"`
}

// HealthcareConfig is the initial bed/ICU capacity.
type HealthcareConfig struct {
	HospitalBeds int `toml:"hospital_beds"`
	ICUUnits     int `toml:"icu_units"`
}

// DiseaseConfig holds the wild-type variant plus named overrides.
type DiseaseConfig struct {
	WildType VariantConfig   `toml:"wild_type"`
	Variant  []VariantConfig `toml:"variant"`
}

// VariantConfig is a flattened, config-friendly form of Variant: its
// age-keyed probability tables collapse to one scalar applied uniformly
// across all ages, since per-age tables are a data-file concern this
// engine treats as out of scope.
type VariantConfig struct {
	Name string `toml:"name"`

	PSusceptibility       float64 `toml:"p_susceptibility"`
	PSymptomatic          float64 `toml:"p_symptomatic"`
	PSevere               float64 `toml:"p_severe"`
	PCritical             float64 `toml:"p_critical"`
	PFatal                float64 `toml:"p_fatal"`
	PDeathOutsideHospital float64 `toml:"p_death_outside_hospital"`

	MeanIncubation             float64 `toml:"mean_incubation"`
	MeanOnsetToDeath           float64 `toml:"mean_onset_to_death"`
	MeanOnsetToRecovery        float64 `toml:"mean_onset_to_recovery"`
	RatioBeforeHospitalisation float64 `toml:"ratio_before_hospitalisation"`
	RatioInWard                float64 `toml:"ratio_in_ward"`

	InfectiousnessMultiplier float64 `toml:"infectiousness_multiplier"`
	PAsymptomaticInfection   float64 `toml:"p_asymptomatic_infection"`
	PMaskProtectsWearer      float64 `toml:"p_mask_protects_wearer"`
	PMaskProtectsOthers      float64 `toml:"p_mask_protects_others"`

	PHospitalDeathNoBeds float64 `toml:"p_hospital_death_no_beds"`
	PICUDeathNoBeds      float64 `toml:"p_icu_death_no_beds"`
	PHospitalDeath       float64 `toml:"p_hospital_death"`

	VaccineEfficacy float64 `toml:"vaccine_efficacy"`
}

// InterventionConfig is one [[intervention]] table; only the fields
// relevant to Type need be set.
type InterventionConfig struct {
	Date string `toml:"date"`
	Type string `toml:"type"`

	MildDetectionRate  float64 `toml:"mild_detection_rate"`
	Efficiency         float64 `toml:"efficiency"`
	DetectedAnywayRate float64 `toml:"detected_anyway_rate"`
	Units             int     `toml:"units"`
	Amount            int     `toml:"amount"`
	WeeklyAmount      float64 `toml:"weekly_amount"`
	Variant           string  `toml:"variant"`
	Reduction         float64 `toml:"reduction"`
	Place             string  `toml:"place"`
	AgeMin            int     `toml:"age_min"`
	AgeMax            int     `toml:"age_max"`
	HasAgeRange       bool    `toml:"has_age_range"`
	ShareOfContacts   float64 `toml:"share_of_contacts"`
	WeeklyVaccinations float64 `toml:"weekly_vaccinations"`
}

// LoadConfig decodes a TOML scenario file, wrapping toml.DecodeFile with
// a path-specific error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot decode config %q", path)
	}
	return &cfg, nil
}

func (v VariantConfig) toVariant() *Variant {
	return &Variant{
		Name:                       v.Name,
		PSusceptibility:            NewClassifiedValues(v.PSusceptibility),
		PSymptomatic:               NewClassifiedValues(v.PSymptomatic),
		PSevere:                    NewClassifiedValues(v.PSevere),
		PCritical:                  NewClassifiedValues(v.PCritical),
		PFatal:                     NewClassifiedValues(v.PFatal),
		PDeathOutsideHospital:      NewClassifiedValues(v.PDeathOutsideHospital),
		InfectiousnessOverTime:     CanonicalInfectiousnessProfile(),
		MeanIncubation:             v.MeanIncubation,
		MeanOnsetToDeath:           v.MeanOnsetToDeath,
		MeanOnsetToRecovery:        v.MeanOnsetToRecovery,
		RatioBeforeHospitalisation: v.RatioBeforeHospitalisation,
		RatioInWard:                v.RatioInWard,
		InfectiousnessMultiplier:   v.InfectiousnessMultiplier,
		PAsymptomaticInfection:     v.PAsymptomaticInfection,
		PMaskProtectsWearer:        v.PMaskProtectsWearer,
		PMaskProtectsOthers:        v.PMaskProtectsOthers,
		PHospitalDeathNoBeds:       v.PHospitalDeathNoBeds,
		PICUDeathNoBeds:            v.PICUDeathNoBeds,
		PHospitalDeath:             v.PHospitalDeath,
		VaccineEfficacy:            v.VaccineEfficacy,
	}
}

// Build constructs a fully wired Context from the decoded config:
// Disease, Population, HealthcareSystem, day-0 seeding, and every
// scheduled intervention.
func (c *Config) Build() (*Context, error) {
	wildType := c.Disease.WildType.toVariant()
	if wildType.Name == "" {
		wildType.Name = "wild-type"
	}
	overrides := make([]*Variant, 0, len(c.Disease.Variant))
	for _, v := range c.Disease.Variant {
		overrides = append(overrides, v.toVariant())
	}
	disease, err := NewDisease(wildType, overrides...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot build disease")
	}

	startDate, err := time.Parse("2006-01-02", c.Simulation.StartDate)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse start_date %q", c.Simulation.StartDate)
	}

	contactRows := make([]ContactRow, 0, len(c.Population.ContactRow))
	for _, r := range c.Population.ContactRow {
		place, err := ParsePlace(r.Place)
		if err != nil {
			return nil, err
		}
		contactRows = append(contactRows, ContactRow{
			ParticipantAge: r.ParticipantAge,
			ContactAgeMin:  r.ContactAgeMin,
			ContactAgeMax:  r.ContactAgeMax,
			Place:          place,
			ContactsPerDay: r.ContactsPerDay,
		})
	}

	ctx, err := NewContext(c.Population.AgeCounts, contactRows, disease, c.Healthcare.HospitalBeds, c.Healthcare.ICUUnits, c.Simulation.Seed, startDate)
	if err != nil {
		return nil, err
	}

	ic := c.Population.Initial
	if err := ctx.SeedInitialConditions(InitialConditions{
		Incubating:     ic.Incubating,
		Ill:            ic.Ill,
		InWard:         ic.InWard,
		InICU:          ic.InICU,
		Dead:           ic.Dead,
		ConfirmedCases: ic.ConfirmedCases,
	}); err != nil {
		return nil, errors.Wrap(err, "cannot seed initial conditions")
	}

	for _, ic := range c.Intervention {
		iv, err := ic.toIntervention(ctx, disease)
		if err != nil {
			return nil, err
		}
		if err := ctx.AddIntervention(iv); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

func (ic InterventionConfig) toIntervention(ctx *Context, disease *Disease) (*Intervention, error) {
	t, err := ParseInterventionType(ic.Type)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", ic.Date)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse intervention date %q", ic.Date)
	}
	iv := NewIntervention(ctx.DateToDay(date), t)

	iv.MildDetectionRate = ic.MildDetectionRate
	iv.TracingEfficiency = ic.Efficiency
	iv.DetectedAnywayRate = ic.DetectedAnywayRate
	iv.Units = ic.Units
	iv.ImportAmount = ic.Amount
	iv.ImportWeeklyAmount = ic.WeeklyAmount
	iv.MobilityReduction = ic.Reduction
	iv.MaskShare = ic.ShareOfContacts
	iv.MobilityAgeMin, iv.MobilityAgeMax = ic.AgeMin, ic.AgeMax
	iv.MaskAgeMin, iv.MaskAgeMax = ic.AgeMin, ic.AgeMax
	iv.MobilityHasAgeRange = ic.HasAgeRange
	iv.MaskHasAgeRange = ic.HasAgeRange
	iv.VaccinateWeekly = ic.WeeklyVaccinations
	iv.VaccinateMinAge, iv.VaccinateMaxAge = ic.AgeMin, ic.AgeMax

	if ic.Place != "" {
		place, err := ParsePlace(ic.Place)
		if err != nil {
			return nil, err
		}
		iv.MobilityPlace = &place
		iv.MaskPlace = &place
	}

	if t == ImportInfections || t == ImportInfectionsWeekly {
		if ic.Variant == "" {
			iv.ImportVariantIdx = 0
		} else {
			idx, _, err := disease.VariantByName(ic.Variant)
			if err != nil {
				return nil, err
			}
			iv.ImportVariantIdx = idx
		}
	}

	return iv, nil
}
