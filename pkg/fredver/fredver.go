// Package fredver adapts run parameters and seeds to the conventions of a
// specific FRED engine major version.
package fredver

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/epistemix-com/epx-go/pkg/runparams"
)

// LatestMajor is the newest FRED major version this client knows how to
// target. The literal version string "latest" resolves to it.
const LatestMajor = 11

// MajorVersion parses the major component out of a FRED version string of
// the form "MAJOR", "MAJOR.MINOR" or "MAJOR.MINOR.PATCH". The literal
// string "latest" resolves to LatestMajor.
func MajorVersion(v string) (int, error) {
	if v == "latest" {
		return LatestMajor, nil
	}
	major := v
	if i := strings.IndexByte(v, '.'); i >= 0 {
		major = v[:i]
	}
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, errors.Wrapf(err, "parse major version from %q", v)
	}
	return n, nil
}

// RescaleSeedToRunNumber maps a 64-bit seed onto the [1, 65536] range FRED
// 10.x expects for its -r run-number argument.
func RescaleSeedToRunNumber(seed uint64) int {
	return 1 + int(seed%65536)
}

// AdaptParamsForFREDVersion returns a copy of params suitable for
// submission against the given FRED engine version. params is never
// mutated. Versions before 11 require the seed to be rescaled into a
// legacy run-number range; 11 and later are passed through unchanged.
func AdaptParamsForFREDVersion(params runparams.RunParameters, fredVersion string) (runparams.RunParameters, error) {
	major, err := MajorVersion(fredVersion)
	if err != nil {
		return runparams.RunParameters{}, err
	}
	out := params.Clone()
	if major < LatestMajor && out.Seed != nil {
		rescaled := uint64(RescaleSeedToRunNumber(*out.Seed))
		out.Seed = &rescaled
	}
	return out, nil
}
