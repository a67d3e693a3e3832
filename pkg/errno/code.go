package errno

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrInvalidParam = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound     = &Errno{Code: 404, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}

	// 业务错误码
	ErrMissingParam     = &Errno{Code: 20001, Message: "Missing required parameter"}
	ErrFileNameIllegal  = &Errno{Code: 20002, Message: "File name is illegal"}
	ErrFileSizeIllegal  = &Errno{Code: 20003, Message: "File size is illegal"}
	ErrFileTypeIllegal  = &Errno{Code: 20004, Message: "File type is illegal"}
	ErrUploadError      = &Errno{Code: 20005, Message: "Upload error"}
	ErrVideoNotFound    = &Errno{Code: 20006, Message: "Video status not found"}
	ErrEncodeQueueFull  = &Errno{Code: 20007, Message: "Encode queue is full"}
	ErrQueueClosed      = &Errno{Code: 20008, Message: "Encode queue is closed"}
	ErrTokenInvalid     = &Errno{Code: 20009, Message: "Access token is invalid"}
	ErrTokenExpired     = &Errno{Code: 20010, Message: "Access token is expired"}
	ErrNoFilesGenerated = &Errno{Code: 20011, Message: "No HLS files generated"}
)
