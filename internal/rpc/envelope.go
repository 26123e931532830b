package rpc

// ProtocolVersion — единственная поддерживаемая версия протокола.
const ProtocolVersion = "2.0"

// MethodToolsCall — единственный поддерживаемый метод.
const MethodToolsCall = "tools/call"

// CodeParseError — тело запроса не является валидным JSON.
// Определяется на HTTP-границе, до Dispatch.
const CodeParseError = -32700

// Envelope — входящий JSON-RPC запрос.
type Envelope struct {
	// JSONRPC — версия протокола, всегда "2.0".
	JSONRPC string `json:"jsonrpc"`

	// ID — непрозрачный идентификатор запроса, возвращается в ответе как есть.
	ID any `json:"id"`

	// Method — имя метода; поддерживается только "tools/call".
	Method string `json:"method"`

	// Params — параметры вызова tool.
	Params CallParams `json:"params"`
}

// CallParams — параметры метода tools/call.
type CallParams struct {
	// Name — имя tool в registry.
	Name string `json:"name"`

	// Arguments — аргументы, валидируются против input shape tool'а.
	Arguments map[string]any `json:"arguments"`
}

// Response — исходящий JSON-RPC ответ.
// Инвариант: заполнен ровно один из Result/Error.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError — структурированная ошибка для caller'а.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
