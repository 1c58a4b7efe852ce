package twilio

import (
	"encoding/xml"
	"fmt"
)

// TwiML document structs. Only the verbs the receptionist uses are modeled:
// Say/Pause/Connect-Stream for the inbound greeting and Dial for forwarding.

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Say     *twimlSay     `xml:"Say,omitempty"`
	Pause   *twimlPause   `xml:"Pause,omitempty"`
	Connect *twimlConnect `xml:"Connect,omitempty"`
	Dial    *twimlDial    `xml:"Dial,omitempty"`
}

type twimlSay struct {
	Voice string `xml:"voice,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type twimlPause struct {
	Length int `xml:"length,attr"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

type twimlDial struct {
	Number string `xml:",chardata"`
}

// ConnectStreamTwiML renders the inbound-webhook response: speak a short
// greeting, pause, then open a bidirectional media stream to streamURL.
func ConnectStreamTwiML(greeting, voice, streamURL string) (string, error) {
	doc := twimlResponse{
		Say:     &twimlSay{Voice: voice, Text: greeting},
		Pause:   &twimlPause{Length: 1},
		Connect: &twimlConnect{Stream: twimlStream{URL: streamURL}},
	}
	return renderTwiML(doc)
}

// DialTwiML renders the redirect document used to forward a live call leg
// to a human's number.
func DialTwiML(number string) (string, error) {
	doc := twimlResponse{Dial: &twimlDial{Number: number}}
	return renderTwiML(doc)
}

func renderTwiML(doc twimlResponse) (string, error) {
	body, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("twilio: render twiml: %w", err)
	}
	return xml.Header + string(body), nil
}
