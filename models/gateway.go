package models

import "context"

// RemoteGateway adapts the package-level persistence functions to the
// interface the workflows consume. It carries no state; all connectivity
// lives in config.
type RemoteGateway struct{}

func (RemoteGateway) FetchAll(ctx context.Context, filter JobFilter) ([]*Job, int64, error) {
	return PaginateJobs(ctx, filter)
}

func (RemoteGateway) FetchOne(ctx context.Context, id string) (*Job, error) {
	return GetJob(ctx, id)
}

func (RemoteGateway) Create(ctx context.Context, input *NewJob) (*Job, error) {
	return CreateJob(ctx, input)
}

func (RemoteGateway) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return UpdateJobFields(ctx, id, fields)
}

func (RemoteGateway) UpdatePosition(ctx context.Context, id string, column JobColumn, order int) error {
	return UpdateJobPosition(ctx, id, column, order)
}

func (RemoteGateway) Delete(ctx context.Context, id string) error {
	return DeleteJob(ctx, id)
}

func (RemoteGateway) AddAttachments(ctx context.Context, id string, attachments []*JobAttachment) error {
	return AddJobAttachments(ctx, id, attachments)
}
