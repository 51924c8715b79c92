package config

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/viper"
)

type ProfileStopper interface {
	Stop()
}

var profileModes = map[string]func(*profile.Profile){
	"cpu":            profile.CPUProfile,
	"mem":            profile.MemProfile,
	"mutex":          profile.MutexProfile,
	"block":          profile.BlockProfile,
	"threadcreation": profile.ThreadcreationProfile,
	"trace":          profile.TraceProfile,
	"goroutine":      profile.GoroutineProfile,
}

// Profile starts profiling for a sampled share of invocations.
// It returns nil when the invocation is not sampled.
func Profile() (ProfileStopper, error) {
	if !viper.IsSet(ProfileSamplingRatioSetting) {
		return nil, nil
	}

	samplingRatio := viper.GetFloat64(ProfileSamplingRatioSetting)
	if rand.Float64() >= samplingRatio {
		return nil, nil
	}

	var opts []func(*profile.Profile)
	if profileMode := viper.GetString(ProfileModeSetting); profileMode != "" {
		mode, ok := profileModes[profileMode]
		if !ok {
			return nil, errors.Errorf("unknown %s '%s'", ProfileModeSetting, profileMode)
		}
		opts = append(opts, mode)
	}

	profilePath := viper.GetString(ProfilePathSetting)
	if profilePath != "" {
		opts = append(opts, profile.ProfilePath(profilePath))
	}
	opts = append(opts, profile.NoShutdownHook)

	return profile.Start(opts...), nil
}
