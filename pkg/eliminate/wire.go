package eliminate

// Wire types for the elimination engine. Polynomials travel as strings
// in the fixed grammar: infix `+ - * ^`, integer exponents, named
// variables. The engine returns one or more implicit polynomials in the
// same grammar, plus its elapsed computation time.

// Request is the elimination request payload.
type Request struct {
	// ID correlates a request with engine logs and lets a client tell
	// apart responses from superseded requests.
	ID string `json:"id"`
	// Polynomials is the ordered constraint system.
	Polynomials []string `json:"polynomials"`
	// Eliminate lists the auxiliary variables to remove.
	Eliminate []string `json:"eliminate"`
	// Keep is the variable pair to retain, always (x, y).
	Keep []string `json:"keep"`
}

// Response is the engine's success payload.
type Response struct {
	ID          string   `json:"id"`
	Polynomials []string `json:"polynomials"`
	ElapsedMS   float64  `json:"elapsed_ms"`
}

// errorResponse is the engine's typed failure payload.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Engine error codes on the wire.
const (
	wireDegenerateSystem = "degenerate_system"
	wireTimeout          = "timeout"
)
