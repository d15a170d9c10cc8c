package shopify

import "context"

type Publication struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const publicationsQuery = `
query publications {
  publications(first: 50) { nodes { id name } }
}`

type publicationsData struct {
	Publications struct {
		Nodes []Publication `json:"nodes"`
	} `json:"publications"`
}

// ListPublications returns the shop's sales channels.
func (c *Client) ListPublications(ctx context.Context) ([]Publication, error) {
	resp, err := PostGraphQL[publicationsData](ctx, c, "publications", publicationsQuery, map[string]any{})
	if err != nil {
		return nil, err
	}
	return resp.Data.Publications.Nodes, nil
}

const publishablePublishMutation = `
mutation publishablePublish($id: ID!, $input: [PublicationInput!]!) {
  publishablePublish(id: $id, input: $input) {
    userErrors { field message }
  }
}`

type publishablePublishData struct {
	PublishablePublish struct {
		UserErrors []UserError `json:"userErrors"`
	} `json:"publishablePublish"`
}

func (c *Client) PublishProduct(ctx context.Context, productID int64, publicationIDs []string) error {
	if len(publicationIDs) == 0 {
		return nil
	}
	input := make([]map[string]string, 0, len(publicationIDs))
	for _, id := range publicationIDs {
		input = append(input, map[string]string{"publicationId": id})
	}
	resp, err := PostGraphQL[publishablePublishData](ctx, c, "publishablePublish", publishablePublishMutation, map[string]any{
		"id":    ProductGID(productID),
		"input": input,
	})
	if err != nil {
		return err
	}
	return userErrorsErr("publishablePublish", resp.Data.PublishablePublish.UserErrors)
}
