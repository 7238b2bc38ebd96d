package protocol

// HELLO (controller -> build)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ControllerName  string `json:"controller_name"`
}

// WELCOME (build -> controller)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	BuildVersion    string `json:"build_version"`
	ScreenWidth     int    `json:"screen_width,omitempty"`
	ScreenHeight    int    `json:"screen_height,omitempty"`
}

// STEP (controller -> build). One message advances the simulation by exactly
// one physics tick, applying the command batch first.
type StepMsg struct {
	Type     string    `json:"type"`
	Commands []Command `json:"commands"`
}

// FRAME (build -> controller). Per-tick output data for whatever send_*
// requests are in flight.
type FrameMsg struct {
	Type string `json:"type"`
	StepResponse
}

// ERROR (build -> controller)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
