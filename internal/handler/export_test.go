package handler

// Export for testing
type FragmentResponse = fragmentResponse
type FragmentPreviewResponse = fragmentPreviewResponse
type PurgeResponse = purgeResponse
type MenuResponseDTO = menuResponse
type LoginResponseDTO = loginResponse

var WriteServiceError = writeServiceError
