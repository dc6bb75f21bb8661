// Package logger provides structured logging for storagekit built on zerolog.
//
// Components obtain a tagged logger via WithComponent and attach structured
// fields per event:
//
//	log := logger.NewDefault("storage-service").WithComponent("storage")
//	log.Info("upload complete", logger.Fields("path", path, "bytes", n))
package logger
