package config

// -----------------------------------------------------------------------------
// Embedded build variants
//
// Key: profile name (selected at build or on the command line)
// Val: raw YAML for that variant
// -----------------------------------------------------------------------------

const cfgHeadset = `
name: headset
role: headset
audio_source: local
channel_runtime: true
default_channel: left
debug: true
ready_poll_ms: 100
netcore_timeout_ms: 500
stack_report_ms: 5000
tone:
  freq_hz: 1000
  duration_ms: 400
  repeat: 1
`

const cfgGateway = `
name: gateway
role: gateway
audio_source: local
default_channel: left
ready_poll_ms: 100
netcore_timeout_ms: 500
stack_report_ms: 5000
tone:
  freq_hz: 1000
  duration_ms: 400
  repeat: 1
`

const cfgGatewayUSB = `
name: gateway-usb
role: gateway
audio_source: usb
default_channel: left
ready_poll_ms: 100
netcore_timeout_ms: 500
stack_report_ms: 5000
tone:
  freq_hz: 1000
  duration_ms: 400
  repeat: 1
`

var embeddedProfiles = map[string][]byte{
	"headset":     []byte(cfgHeadset),
	"gateway":     []byte(cfgGateway),
	"gateway-usb": []byte(cfgGatewayUSB),
}
