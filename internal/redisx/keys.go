package redisx

import "fmt"

const ns = "skyfare:v1"

func KeyFlightSummary(flightID int64) string {
	return fmt.Sprintf("%s:flight:%d:summary", ns, flightID)
}

func KeyFlightClasses(flightID int64) string {
	return fmt.Sprintf("%s:flight:%d:classes", ns, flightID)
}

func KeyClassAvailability(classID int64) string {
	return fmt.Sprintf("%s:class:%d:availability", ns, classID)
}

func KeyRatesDay(day string) string {
	return fmt.Sprintf("%s:rates:%s", ns, day)
}

// RateLimitPrefix is the namespace handed to the sliding window
// limiter, which appends its own per-caller suffixes.
func RateLimitPrefix() string {
	return ns + ":rl"
}

func ChannelOrdersChanged() string {
	return ns + ":orders:changed"
}
