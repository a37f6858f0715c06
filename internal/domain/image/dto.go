package image

type ResizeRequest struct {
	NewWidth  int `json:"new_width" binding:"required,gt=0"`
	NewHeight int `json:"new_height" binding:"required,gt=0"`
}

type ResizeResponse struct {
	Message string `json:"message"`
}
