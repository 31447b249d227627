package logging

// WailsLoggerAdapter bridges our structured Logger to the wails logger.Logger
// interface so runtime messages from the shell land in the same JSON stream.
type WailsLoggerAdapter struct {
	logger Logger
}

func NewWailsLoggerAdapter(logger Logger) *WailsLoggerAdapter {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &WailsLoggerAdapter{logger: logger}
}

func (w *WailsLoggerAdapter) Print(message string) {
	w.logger.Info(message)
}

func (w *WailsLoggerAdapter) Trace(message string) {
	w.logger.Debug(message)
}

func (w *WailsLoggerAdapter) Debug(message string) {
	w.logger.Debug(message)
}

func (w *WailsLoggerAdapter) Info(message string) {
	w.logger.Info(message)
}

func (w *WailsLoggerAdapter) Warning(message string) {
	w.logger.Warn(message)
}

func (w *WailsLoggerAdapter) Error(message string) {
	w.logger.Error(message)
}

func (w *WailsLoggerAdapter) Fatal(message string) {
	w.logger.Error(message, "fatal", true)
}
