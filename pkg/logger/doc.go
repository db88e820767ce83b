// Package logger builds the service's slog.Logger.
//
// New takes functional options for format, level, static attributes and
// context extractors. Extractors run on every log call, which is how the
// request id set by the requestid middleware reaches each record:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "marketplace"),
//		logger.WithConfig(cfg.Log),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "payment event applied", logger.Event(evt), logger.AccountID(id))
//
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
