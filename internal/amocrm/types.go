package amocrm

// Wire DTOs for the CRM's v4 JSON shapes. These never leave the package.

type embeddedContactRef struct {
	ID     int64 `json:"id"`
	IsMain bool  `json:"is_main"`
}

type embeddedCustomerRef struct {
	ID int64 `json:"id"`
}

type leadDTO struct {
	ID                 int64        `json:"id"`
	Price              *float64     `json:"price"`
	CreatedAt          int64        `json:"created_at"`
	ClosedAt           int64        `json:"closed_at"`
	CustomFieldsValues CustomFields `json:"custom_fields_values"`
	Embedded           struct {
		Contacts []embeddedContactRef `json:"contacts"`
	} `json:"_embedded"`
}

type leadsPage struct {
	Embedded struct {
		Leads []leadDTO `json:"leads"`
	} `json:"_embedded"`
}

type contactDTO struct {
	ID                 int64        `json:"id"`
	CustomFieldsValues CustomFields `json:"custom_fields_values"`
	Embedded           struct {
		Customers []embeddedCustomerRef `json:"customers"`
	} `json:"_embedded"`
}

type contactsPage struct {
	Embedded struct {
		Contacts []contactDTO `json:"contacts"`
	} `json:"_embedded"`
}

type customerDTO struct {
	ID                 int64        `json:"id"`
	CustomFieldsValues CustomFields `json:"custom_fields_values"`
}

type createdContactsResponse struct {
	Embedded struct {
		Contacts []struct {
			ID int64 `json:"id"`
		} `json:"contacts"`
	} `json:"_embedded"`
}

type createdLeadsResponse struct {
	Embedded struct {
		Leads []struct {
			ID int64 `json:"id"`
		} `json:"leads"`
	} `json:"_embedded"`
}

// mainContactID picks the contact flagged is_main, falling back to the first.
func (l leadDTO) mainContactID() *int64 {
	contacts := l.Embedded.Contacts
	if len(contacts) == 0 {
		return nil
	}
	for _, contact := range contacts {
		if contact.IsMain {
			id := contact.ID
			return &id
		}
	}
	id := contacts[0].ID
	return &id
}

// firstCustomerID returns the first linked customer, nil when none.
func (c contactDTO) firstCustomerID() *int64 {
	if len(c.Embedded.Customers) == 0 {
		return nil
	}
	id := c.Embedded.Customers[0].ID
	return &id
}
