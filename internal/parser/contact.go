package parser

import "strings"

var (
	nameKeys  = []string{"name", "vorname", "nachname", "full_name", "fullname"}
	emailKeys = []string{"email", "e_mail", "e-mail", "mail"}
)

// Contact is the submitter identity guessed from common field names
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ExtractContact guesses name and email of the submitter
func ExtractContact(p *Payload) Contact {
	var c Contact

	for _, k := range nameKeys {
		if v := strings.TrimSpace(p.String(k)); v != "" {
			c.Name = v
			break
		}
	}
	if c.Name == "" {
		c.Name = strings.TrimSpace(p.String("vorname") + " " + p.String("nachname"))
	}

	for _, k := range emailKeys {
		if v := strings.TrimSpace(p.String(k)); v != "" {
			c.Email = v
			break
		}
	}

	return c
}

// ExtractContactRaw is ExtractContact for stored form data. Undecodable data yields an empty contact.
func ExtractContactRaw(raw string) Contact {
	p, err := ParsePayload(raw)
	if err != nil {
		return Contact{}
	}
	return ExtractContact(p)
}
