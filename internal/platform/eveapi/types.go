package eveapi

// CharacterInfo holds the attributes the provider reports for one character.
type CharacterInfo struct {
	Corporation string
}

// KeyInfo maps character name to its attributes for one verified key.
type KeyInfo map[string]CharacterInfo

// keyInfoResponse mirrors the provider's APIKeyInfo XML envelope.
type keyInfoResponse struct {
	Error *struct {
		Code    int    `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"error"`
	Result struct {
		Key struct {
			Rows []struct {
				CharacterName   string `xml:"characterName,attr"`
				CorporationName string `xml:"corporationName,attr"`
			} `xml:"rowset>row"`
		} `xml:"key"`
	} `xml:"result"`
}
