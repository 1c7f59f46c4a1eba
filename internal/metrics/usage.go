package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"bybitdash/logger"
)

// ReportUsage extracts the Bybit REST rate limit headers and records the used
// quota for endpoint. It reports whether the headers were present.
func ReportUsage(log *logger.Log, header http.Header, endpoint string) (limit, remaining float64, ok bool) {
	if header == nil {
		return 0, 0, false
	}
	if log == nil {
		log = logger.GetLogger()
	}

	headerLimit := header.Get("X-Bapi-Limit")
	if headerLimit == "" {
		headerLimit = header.Get("X-RateLimit-Limit")
	}
	headerRemaining := header.Get("X-Bapi-Limit-Status")
	if headerRemaining == "" {
		headerRemaining = header.Get("X-RateLimit-Remaining")
	}
	if headerLimit == "" && headerRemaining == "" {
		return 0, 0, false
	}

	if headerLimit != "" {
		if parsed, err := strconv.ParseFloat(headerLimit, 64); err == nil {
			limit = parsed
		} else {
			log.WithComponent("bybit_client").WithFields(logger.Fields{
				"header": "X-Bapi-Limit",
				"value":  headerLimit,
			}).WithError(err).Debug("failed to parse bybit limit header")
		}
	}

	if headerRemaining != "" {
		if parsed, err := strconv.ParseFloat(headerRemaining, 64); err == nil {
			remaining = parsed
		} else {
			log.WithComponent("bybit_client").WithFields(logger.Fields{
				"header": "X-Bapi-Limit-Status",
				"value":  headerRemaining,
			}).WithError(err).Debug("failed to parse bybit remaining header")
		}
	}

	if limit > 0 && remaining >= 0 {
		used := limit - remaining
		if used < 0 {
			used = 0
		}
		SetUsedWeight(endpoint, used)
		report(log, Event{Kind: EventUsedWeight, Endpoint: endpoint, Value: used, Limit: limit, Remaining: remaining})
	}

	return limit, remaining, true
}

// detectLimit classifies a Bybit error message as a rate limit or an IP ban.
func detectLimit(msg string) (rateLimit bool, ipBan bool) {
	lowerMsg := strings.ToLower(msg)
	ipBan = strings.Contains(lowerMsg, "ip rate limit") || (strings.Contains(lowerMsg, "ip") && strings.Contains(lowerMsg, "ban"))
	rateLimit = !ipBan && (strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests") || strings.Contains(lowerMsg, "too many visits"))
	return
}

// ReportLimitFromMessage records a limit event when msg looks like a rate limit
// or IP ban rejection. Other messages are ignored.
func ReportLimitFromMessage(log *logger.Log, endpoint, msg string) {
	if log == nil {
		log = logger.GetLogger()
	}

	rateLimit, ipBan := detectLimit(msg)
	fields := logger.Fields{"endpoint": endpoint}
	if rateLimit {
		IncLimitEvent("rate_limit")
		report(log, Event{Kind: EventRateLimit, Endpoint: endpoint, Value: 1})
		log.WithComponent("bybit_client").WithFields(fields).Warn("rate limit exceeded")
	}
	if ipBan {
		IncLimitEvent("ip_ban")
		report(log, Event{Kind: EventIPBan, Endpoint: endpoint, Value: 1})
		log.WithComponent("bybit_client").WithFields(fields).Error("ip banned")
	}
}
