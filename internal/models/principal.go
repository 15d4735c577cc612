package models

// Principal is the signed-in caller as seen by the moderation dashboard.
type Principal struct {
	Subject string
	Name    string
	Roles   []string
}

func (p *Principal) Can(capability string) bool {
	if p == nil || p.Subject == "" {
		return false
	}
	return Can(p.Roles, capability)
}

// PrincipalFromClaims maps access-token claims onto a Principal.
func PrincipalFromClaims(claims map[string]interface{}) *Principal {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	name, _ := claims["name"].(string)
	p := &Principal{Subject: sub, Name: name}
	if rs, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rs {
			if s, ok := r.(string); ok {
				p.Roles = append(p.Roles, s)
			}
		}
	}
	return p
}
