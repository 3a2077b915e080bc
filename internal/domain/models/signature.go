package models

// Signature describes a behavior pattern to downstream responders.
// Signature 为下游响应方描述一种行为模式。
type Signature struct {
	ID           string          `json:"id"`
	Pattern      BehaviorPattern `json:"pattern"`
	DefaultLevel ThreatLevel     `json:"default_level"`
	Description  string          `json:"description"`
}

var signatureTable = [...]Signature{
	PatternNormal:            {ID: "normal", Pattern: PatternNormal, DefaultLevel: ThreatSafe, Description: "No suspicious behavior"},
	PatternRapidFailures:     {ID: "rapid_failures", Pattern: PatternRapidFailures, DefaultLevel: ThreatMedium, Description: "Burst of failed requests"},
	PatternEnumeration:       {ID: "enumeration_attack", Pattern: PatternEnumeration, DefaultLevel: ThreatHigh, Description: "Path or identifier enumeration attempts"},
	PatternPayloadInjection:  {ID: "payload_injection", Pattern: PatternPayloadInjection, DefaultLevel: ThreatCritical, Description: "Malicious payload detected"},
	PatternTimingAttack:      {ID: "timing_attack", Pattern: PatternTimingAttack, DefaultLevel: ThreatMedium, Description: "Abnormal request timing pattern"},
	PatternResourceAbuse:     {ID: "resource_abuse", Pattern: PatternResourceAbuse, DefaultLevel: ThreatHigh, Description: "Excessive resource consumption"},
	PatternDeviceChange:      {ID: "device_change", Pattern: PatternDeviceChange, DefaultLevel: ThreatLow, Description: "Client device fingerprint changed"},
	PatternAnomalousLocation: {ID: "anomalous_location", Pattern: PatternAnomalousLocation, DefaultLevel: ThreatLow, Description: "Request from an unusual location"},
	PatternCredentialSpray:   {ID: "credential_spray", Pattern: PatternCredentialSpray, DefaultLevel: ThreatHigh, Description: "Credentials tried across many accounts"},
}

var _ = [1]struct{}{}[len(signatureTable)-int(patternCount)]

// Signature returns the catalog entry of the pattern.
func (p BehaviorPattern) Signature() (Signature, bool) {
	if p >= patternCount {
		return Signature{}, false
	}
	return signatureTable[p], true
}

// Signatures returns the catalog entries of every detectable pattern,
// Normal excluded, in declaration order.
func Signatures() []Signature {
	out := make([]Signature, 0, patternCount-1)
	for p := PatternNormal + 1; p < patternCount; p++ {
		out = append(out, signatureTable[p])
	}
	return out
}

// SignaturesFor maps detected patterns to their catalog entries, keeping order.
func SignaturesFor(patterns []BehaviorPattern) []Signature {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]Signature, 0, len(patterns))
	for _, p := range patterns {
		if sig, ok := p.Signature(); ok {
			out = append(out, sig)
		}
	}
	return out
}
