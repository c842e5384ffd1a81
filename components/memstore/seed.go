package memstore

import "fmt"

// DemoCollections returns the customer, lead, channel partner and comment
// collections used by the demo binary: customers reference channel partners
// by id and comments reference a customer or a lead.
func DemoCollections() []CollectionSpec {
	partners := []map[string]any{
		{"id": "cp-1", "name": "Northwind Traders", "email": "hello@northwind.test"},
		{"id": "cp-2", "name": "Contoso Retail", "email": "sales@contoso.test"},
		{"id": "cp-3", "name": "Fabrikam Partners", "email": "team@fabrikam.test"},
	}

	customers := make([]map[string]any, 0, 45)
	for i := 1; i <= 45; i++ {
		customers = append(customers, map[string]any{
			"id":               fmt.Sprintf("cu-%02d", i),
			"name":             fmt.Sprintf("Customer %02d", i),
			"contactNumber":    fmt.Sprintf("55501%04d", i),
			"email":            fmt.Sprintf("customer%02d@example.test", i),
			"url":              fmt.Sprintf("https://customer%02d.example.test", i),
			"channelPartnerId": partners[i%len(partners)]["id"],
			"createdAt":        fmt.Sprintf("2024-01-%02dT09:00:00Z", (i%28)+1),
		})
	}

	leads := make([]map[string]any, 0, 12)
	for i := 1; i <= 12; i++ {
		leads = append(leads, map[string]any{
			"id":            fmt.Sprintf("ld-%02d", i),
			"name":          fmt.Sprintf("Lead %02d", i),
			"contactNumber": fmt.Sprintf("55502%04d", i),
			"email":         fmt.Sprintf("lead%02d@example.test", i),
			"followUpOn":    fmt.Sprintf("2024-03-%02d", (i%28)+1),
		})
	}

	authors := []string{"Priya", "Marco", "Aiko"}
	comments := make([]map[string]any, 0, 8)
	for i := 1; i <= 8; i++ {
		c := map[string]any{
			"id":          fmt.Sprintf("cm-%02d", i),
			"comment":     fmt.Sprintf("Follow-up call %d went well, they asked for a revised quote with volume pricing", i),
			"user":        map[string]any{"name": authors[i%len(authors)]},
			"createdDate": fmt.Sprintf("2024-04-%02dT1%d:30:00Z", i, i%10),
		}
		if i%2 == 0 {
			c["customerId"] = fmt.Sprintf("cu-%02d", i)
		} else {
			c["leadId"] = fmt.Sprintf("ld-%02d", i)
		}
		comments = append(comments, c)
	}

	return []CollectionSpec{
		{Name: "customer", Required: []string{"name", "contactNumber", "email"}, Seed: customers},
		{Name: "lead", Required: []string{"name"}, Seed: leads},
		{Name: "channelpartner", Required: []string{"name"}, Seed: partners},
		{Name: "comment", Required: []string{"comment"}, DateKey: "createdDate", Seed: comments},
	}
}
