package forex

import "fxhistory-backend/lib/telemetry"

var tracer = telemetry.Tracer("fxhistory.services.forex")
