package yahoofinance

import (
	"fxhistory-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("fxhistory.lib.scrapers.yahoofinance")
