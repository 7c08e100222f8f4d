package logging

// SecretSentinel is the reserved string the engine emits in place of any
// secret-bearing field on query, and interprets as "reuse the stored
// secret" on apply (spec §6 "Secret sentinel").
const SecretSentinel = "<_password_hid_by_nmstate>"

// Redact returns SecretSentinel for any non-empty secret value, and the
// empty string unchanged. Debug formatting for secret-bearing records
// (ieee8021x keys/passwords, macsec mka-cak, ipsec psk, vpn secrets)
// must call this unconditionally rather than print the raw value.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return SecretSentinel
}

// RedactMap returns a copy of m with every value replaced by Redact(v).
// Used when logging OVSDB external_ids/other_config maps that might
// carry secret-shaped values inherited from an interface record.
func RedactMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Redact(v)
	}
	return out
}
