package tensorcheck

import (
	"math/rand"
	"os"
	"strconv"
	"sync"

	"github.com/leanovate/gopter"
)

// SeedEnv names the environment variable holding the run seed.
const SeedEnv = "TENSORCHECK_SEED"

// DefaultSeed is used when SeedEnv is unset, so runs are reproducible by
// default.
const DefaultSeed int64 = 0x7e45028c

// defaultMinSuccessfulTests is tuned down from gopter's default; tensor draws
// are comparatively expensive.
const defaultMinSuccessfulTests = 50

var externalRands = struct {
	sync.Mutex
	sources []rand.Source64
}{}

// RegisterRandom registers an external random source to be re-seeded from the
// run seed whenever Parameters or ParametersWithSeed is called. This keeps
// auxiliary randomness (weight initialisation outside the draw, data
// shuffling) replayable alongside the draws themselves.
func RegisterRandom(src rand.Source64) {
	externalRands.Lock()
	defer externalRands.Unlock()
	externalRands.sources = append(externalRands.sources, src)
}

func reseedExternal(seed int64) {
	externalRands.Lock()
	defer externalRands.Unlock()
	for _, src := range externalRands.sources {
		src.Seed(seed)
	}
}

// Parameters returns deterministic gopter test parameters. The seed comes
// from TENSORCHECK_SEED when set (decimal int64), else DefaultSeed. Registered
// external random sources are re-seeded as a side effect.
func Parameters() *gopter.TestParameters {
	return ParametersWithSeed(seedFromEnv())
}

// ParametersWithSeed returns deterministic gopter test parameters for an
// explicit seed and re-seeds registered external random sources.
func ParametersWithSeed(seed int64) *gopter.TestParameters {
	reseedExternal(seed)
	p := gopter.DefaultTestParametersWithSeed(seed)
	p.MinSuccessfulTests = defaultMinSuccessfulTests
	return p
}

func seedFromEnv() int64 {
	raw, ok := os.LookupEnv(SeedEnv)
	if !ok {
		return DefaultSeed
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return DefaultSeed
	}
	return seed
}
