package genai

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

// Defaulter fills optional candidate fields the provider omitted with
// plausible derived values. It is a distinct step so strict-validation modes
// can disable it and tests can seed it deterministically.
type Defaulter struct {
	enabled bool
	rng     *rand.Rand
}

// NewDefaulter creates a Defaulter. A nil rng gets a random source; tests
// pass a seeded one.
func NewDefaulter(enabled bool, rng *rand.Rand) *Defaulter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Defaulter{enabled: enabled, rng: rng}
}

// fallbackScoreMin/Max bound scores assigned when the provider omits one:
// the same [60,100) band the synthetic generator uses.
const (
	fallbackScoreMin = 60
	fallbackScoreMax = 100
)

// Apply fills missing optional fields in place. A SuitabilityScore of -1
// marks "absent" and always gets a default, even in strict mode, since every
// candidate must carry a valid score for the priority ladder.
func (d *Defaulter) Apply(c *model.CandidateLead, criteria model.GenerationCriteria) {
	if c.SuitabilityScore < 0 {
		c.SuitabilityScore = fallbackScoreMin + d.rng.IntN(fallbackScoreMax-fallbackScoreMin)
	}
	if !d.enabled {
		return
	}

	if c.EmployeeCount <= 0 {
		lo, hi := sizeBandRange(criteria.CompanySizeBand)
		c.EmployeeCount = lo + d.rng.IntN(hi-lo+1)
	}
	if c.EstimatedRevenue <= 0 {
		// Rough revenue-per-employee heuristic, 50k-150k EUR.
		perEmployee := 50000 + d.rng.Float64()*100000
		c.EstimatedRevenue = float64(c.EmployeeCount) * perEmployee
	}
	if c.ContactName == "" {
		c.ContactName = "Direcció Comercial"
	}
	if c.ContactEmail == "" {
		c.ContactEmail = fmt.Sprintf("info@%s.example.com", slugify(c.CompanyName))
	}
	if c.ContactPhone == "" {
		c.ContactPhone = fmt.Sprintf("+34 9%02d %03d %03d", d.rng.IntN(100), d.rng.IntN(1000), d.rng.IntN(1000))
	}
	if c.Website == "" {
		c.Website = fmt.Sprintf("https://www.%s.example.com", slugify(c.CompanyName))
	}
}

// sizeBandRange translates a size band like "10-50" or "200+" into employee
// count bounds. Unknown bands get a broad small-business range.
func sizeBandRange(band string) (lo, hi int) {
	band = strings.TrimSpace(band)
	if band == "" {
		return 5, 250
	}
	if strings.HasSuffix(band, "+") {
		if n, err := strconv.Atoi(strings.TrimSuffix(band, "+")); err == nil {
			return n, n * 5
		}
		return 5, 250
	}
	parts := strings.SplitN(band, "-", 2)
	if len(parts) == 2 {
		a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
		b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errA == nil && errB == nil && b >= a && a > 0 {
			return a, b
		}
	}
	return 5, 250
}

// slugify lowercases a company name and strips it to [a-z0-9-] for use in
// derived emails and URLs.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
