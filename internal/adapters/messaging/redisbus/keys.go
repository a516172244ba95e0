package redisbus

import "fmt"

// HistoryCap bounds the number of messages retained per channel.
const HistoryCap = 100

func timetokenKey(ns, channel string) string {
	return fmt.Sprintf("%s:ch:%s:tt", ns, channel)
}

func historyKey(ns, channel string) string {
	return fmt.Sprintf("%s:ch:%s:history", ns, channel)
}

func presenceKey(ns, channel string) string {
	return fmt.Sprintf("%s:ch:%s:presence", ns, channel)
}

func heartbeatKey(ns, channel, id string) string {
	return fmt.Sprintf("%s:ch:%s:hb:%s", ns, channel, id)
}

func identityKey(ns, id string) string {
	return fmt.Sprintf("%s:uuid:%s", ns, id)
}

func membershipsKey(ns, id string) string {
	return fmt.Sprintf("%s:uuid:%s:memberships", ns, id)
}

func channelTopic(ns, channel string) string {
	return fmt.Sprintf("%s:ps:%s", ns, channel)
}

func objectsTopic(ns string) string {
	return fmt.Sprintf("%s:ps:objects", ns)
}
