package task

// TaskCreate は一括作成リクエストの1要素です。
// owner は常にサーバー側で認証済みユーザーから決まるため、入力には含めません。
type TaskCreate struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// TaskUpdate は部分更新リクエストです。
// nil のフィールドは変更しません。
type TaskUpdate struct {
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

// PaginatedResponse はページング付き一覧のレスポンスです。
// Total はページ窓に関係なく、条件に合う全件数を返します。
type PaginatedResponse[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}
