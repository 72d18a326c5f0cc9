package protocol

// Result codes. Clients must key decisions off the numeric code only;
// the reason text is advisory.
const (
	CodeOK                   = 200
	CodeConnected            = 201
	CodeMultiLine            = 202
	CodeBinary               = 203
	CodeSendBinary           = 204
	CodeNotificationChannel  = 205
	CodeDedicatedConnection  = 206
	CodeFileNotFound         = 402
	CodeNoSuchModule         = 403
	CodeMemoryNotMapped      = 404
	CodeGenericError         = 405
	CodeUnknownCommandAlt    = 407
	CodeIsDebugger           = 410
	CodeMustBeDedicated      = 412
	CodeBoxNotLocked         = 420
	CodeKeyExchangeRequired  = 421
	CodeInvalidArgument      = 423
	CodePathNotFound         = 430
	CodeInvalidScreenInput   = 432
	CodeInvalidScreenOutput  = 433
	CodeLineTooLong          = 446
)

// reasons holds the canonical reason phrase for each code an
// implementation must know how to emit. Handlers that need a code not
// listed here should supply their own reason text.
var reasons = map[int]string{
	CodeOK:                  "OK",
	CodeConnected:           "connected",
	CodeMultiLine:           "multiline response follows",
	CodeBinary:              "binary response follows",
	CodeSendBinary:          "send binary data",
	CodeNotificationChannel: "now a notification channel",
	CodeDedicatedConnection: "dedicated connection established",
	CodeFileNotFound:        "file not found",
	CodeNoSuchModule:        "no such module",
	CodeMemoryNotMapped:     "memory not mapped",
	CodeGenericError:        "generic error",
	CodeUnknownCommandAlt:   "unknown command",
	CodeIsDebugger:          "debugger",
	CodeMustBeDedicated:     "dedicated connection required",
	CodeBoxNotLocked:        "box is not locked",
	CodeKeyExchangeRequired: "key exchange required",
	CodeInvalidArgument:     "invalid argument",
	CodePathNotFound:        "path not found",
	CodeInvalidScreenInput:  "invalid screen input format",
	CodeInvalidScreenOutput: "invalid screen output format",
	CodeLineTooLong:         "line too long",
}

// Reason returns the canonical reason phrase for code, or "" if the code
// is not part of the known taxonomy.
func Reason(code int) string {
	return reasons[code]
}

// IsSuccess reports whether code is in the 2xx range.
func IsSuccess(code int) bool { return code >= 200 && code < 300 }
