package response

import "StoreChat/entity"

type Response struct {
	Data       interface{}        `json:"data,omitempty"`
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Pagination *entity.Pagination `json:"pagination,omitempty"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:    data,
		Success: true,
	}
}

func OkMessage(message string, data interface{}) Response {
	return Response{
		Data:    data,
		Success: true,
		Message: message,
	}
}

func Paged(data interface{}, pagination entity.Pagination) Response {
	return Response{
		Data:       data,
		Success:    true,
		Pagination: &pagination,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}
