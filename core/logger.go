package core

// Logger is the logging contract shared by every package.
// expected args: error | map[string]interface{} | any value worth printing.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
