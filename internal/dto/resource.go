package dto

// CreateResourceRequest describes the create payload for a resource.
type CreateResourceRequest struct {
	Name     string `json:"name" validate:"required"`
	Timezone string `json:"timezone"`
}

// UpdateResourceRequest describes the update payload for a resource.
type UpdateResourceRequest struct {
	Name     string `json:"name" validate:"required"`
	Timezone string `json:"timezone"`
}
