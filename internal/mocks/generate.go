// Package mocks provides gomock implementations of the core repository interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	users := mocks.NewMockUserRepository(ctrl)
//	users.EXPECT().GetByID(gomock.Any(), "id").Return(user, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/target/creditfeed/internal/core UserRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=saved_post_repository_mock.go github.com/target/creditfeed/internal/core SavedPostRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=report_repository_mock.go github.com/target/creditfeed/internal/core ReportRepository
