// Package logtail reads the tail of the console's JSON log and renders its
// entries as single readable lines.
//
// Read keeps at most maxLines lines in memory no matter how large the file
// is. Parse understands the zap JSON encoding the logging package writes
// (ts, level, logger, msg, caller, error plus structured fields); Format
// turns an entry into
//
//	09:30:00.123 ERROR [board] poll fetch failed resource=cleansing error="dial tcp: connection refused"
//
// and Filter drops entries below a level. The "datamate logs" command is
// built on these.
package logtail
