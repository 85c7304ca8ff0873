package viewsync

import (
	"context"
	nethttp "net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/cache"
	"github.com/hrdesk/viewsync/internal"
)

// Target selects cache entries a mutation invalidates in addition to the
// mutated resource's lists. An empty Operation selects all operations of
// Resource; a set ID selects one entity's detail entry.
type Target struct {
	Resource  string
	Operation string
	ID        string
}

func (t Target) predicate() cache.Predicate {
	if t.ID != "" {
		return cache.MatchDetail(t.Resource, t.ID)
	}
	if t.Operation != "" {
		return cache.MatchResource(t.Resource, t.Operation)
	}
	return cache.MatchResource(t.Resource)
}

func (t Target) storePrefix() string {
	switch {
	case t.ID != "":
		return cache.DetailKey(t.Resource, t.ID).StorePrefix()
	case t.Operation != "":
		return cache.StoreKey(t.Resource, t.Operation, "")
	default:
		return cache.StoreKey(t.Resource, "")
	}
}

// Operation is a mutation executed by Client.Execute
type Operation struct {
	Resource string
	Name     string
	// EntityID is the id of the mutated entity; its detail entry is
	// invalidated
	EntityID string
	// Input is validated (`validate` struct tags) before Call is made
	Input any
	// SuccessStatus is the status a success toast is shown for
	SuccessStatus int
	// Targets are invalidated in addition to the resource's lists
	Targets []Target
	// NoInvalidation skips all invalidation, for mutations that do not
	// affect any listed data
	NoInvalidation bool
	// FieldErrors receives per-field validation errors
	FieldErrors FieldErrors
	// Call performs the request
	Call func(ctx context.Context) (status int, message string, entity any, err error)
}

// Outcome is the result of a mutation
type Outcome struct {
	ID          string
	Resource    string
	Operation   string
	Status      int
	Message     string
	Entity      any
	Err         error
	FieldErrors map[string][]string
	// Invalidated is the number of invalidated cache entries
	Invalidated int
	// Notified is set if a success toast was shown
	Notified bool
}

// OK reports whether the mutation succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Execute runs op. On success every list of op.Resource, the detail entry
// of op.EntityID and op.Targets are invalidated in one step, and the
// response message is shown if the status equals op.SuccessStatus. On
// failure the cache is left untouched and the error is reported to the
// user. Execute never retries.
func (c *Client) Execute(ctx context.Context, op Operation) Outcome {
	out := Outcome{
		ID:        uuid.NewString(),
		Resource:  op.Resource,
		Operation: op.Name,
	}
	logger := internal.WithResource(op.Resource, op.Name).WithField(internal.FieldOpID, out.ID)

	if fields := validateInput(op.Input); len(fields) > 0 {
		apiErr := &APIError{
			Status:  nethttp.StatusUnprocessableEntity,
			Message: MessageGenericError,
			Fields:  fields,
		}
		for _, msgs := range fields {
			apiErr.Errors = append(apiErr.Errors, msgs...)
		}
		out.Err = apiErr
		out.FieldErrors = fields
		logger.WithError(apiErr).Debug("mutation: input rejected")
		c.reportFailure(apiErr, op.FieldErrors)
		return out
	}
	if op.Call == nil {
		out.Err = errors.New("mutation has no call")
		logger.WithError(out.Err).Error("mutation: cannot execute")
		return out
	}

	status, message, entity, err := op.Call(ctx)
	if err != nil {
		out.Err = err
		if apiErr := AsAPIError(err); apiErr != nil {
			out.Status = apiErr.Status
			out.FieldErrors = apiErr.Fields
		}
		logger.WithError(err).WithField(internal.FieldStatus, out.Status).Info("mutation: failed")
		c.reportFailure(err, op.FieldErrors)
		return out
	}
	out.Status = status
	out.Message = message
	out.Entity = entity

	if !op.NoInvalidation {
		targets := append(
			[]Target{
				{
					Resource:  op.Resource,
					Operation: cache.OperationList,
				},
			}, op.Targets...,
		)
		if op.EntityID != "" {
			targets = append(
				targets, Target{
					Resource: op.Resource,
					ID:       op.EntityID,
				},
			)
		}
		preds := make([]cache.Predicate, len(targets))
		prefixes := make([]string, len(targets))
		for i, t := range targets {
			preds[i] = t.predicate()
			prefixes[i] = t.storePrefix()
		}
		out.Invalidated = c.cache.Invalidate(cache.Any(preds...))
		if ferr := c.cache.ForgetStored(prefixes...); ferr != nil {
			logger.WithError(ferr).Error("mutation: could not clear stored payloads")
		}
	}

	if status == op.SuccessStatus && message != "" {
		out.Notified = c.notify(NotifySuccess, message)
	}
	logger.WithFields(
		internal.Fields{
			internal.FieldStatus: status,
			"invalidated":        out.Invalidated,
		},
	).Info("mutation: succeeded")
	return out
}

// validateInput returns the field errors of a struct input; other inputs
// are not validated.
func validateInput(input any) map[string][]string {
	if input == nil {
		return nil
	}
	err := apimodel.Validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fe.Error())
	}
	return fields
}

// MutationOption configures a single mutation
type MutationOption func(*Operation)

// WithFieldErrors routes field validation errors to sink
func WithFieldErrors(sink FieldErrors) MutationOption {
	return func(op *Operation) {
		op.FieldErrors = sink
	}
}

// WithTargets invalidates targets in addition to the resource's lists
func WithTargets(targets ...Target) MutationOption {
	return func(op *Operation) {
		op.Targets = append(op.Targets, targets...)
	}
}

// Mutations executes create, update, delete and custom actions of one
// resource with the current principal.
type Mutations[T any] struct {
	client   *Client
	resource *Resource[T]
}

// NewMutations returns the Mutations of resource
func NewMutations[T any](c *Client, resource *Resource[T]) *Mutations[T] {
	return &Mutations[T]{
		client:   c,
		resource: resource,
	}
}

// Action is a custom mutation, e.g. accepting a leave request.
type Action[T any] struct {
	Name     string
	EntityID string
	Input    any
	// SuccessStatus defaults to 200
	SuccessStatus  int
	Targets        []Target
	NoInvalidation bool
	Call           func(ctx context.Context, svc Service[T]) (*MutationResult[T], error)
}

func (m *Mutations[T]) execute(
	ctx context.Context, op Operation, call func(context.Context, Service[T]) (*MutationResult[T], error),
	opts []MutationOption,
) Outcome {
	for _, o := range opts {
		o(&op)
	}
	op.Resource = m.resource.Name
	p := m.client.session.Principal()
	op.Call = func(ctx context.Context) (int, string, any, error) {
		if p.IsZero() {
			return 0, "", nil, &APIError{
				Status: nethttp.StatusUnauthorized,
				cause:  ErrNoPrincipal,
			}
		}
		res, err := call(ctx, m.resource.service(p))
		if err != nil {
			return 0, "", nil, err
		}
		if res == nil {
			return 0, "", nil, nil
		}
		var entity any
		if res.Entity != nil {
			entity = res.Entity
		}
		return res.Status, res.Message, entity, nil
	}
	return m.client.Execute(ctx, op)
}

// Create creates input
func (m *Mutations[T]) Create(ctx context.Context, input T, opts ...MutationOption) Outcome {
	return m.execute(
		ctx, Operation{
			Name:          OperationCreate,
			Input:         input,
			SuccessStatus: m.resource.successStatus(OperationCreate),
		}, func(ctx context.Context, svc Service[T]) (*MutationResult[T], error) {
			return svc.Create(ctx, input)
		}, opts,
	)
}

// Update updates input; its detail entry is invalidated if the resource
// defines ID.
func (m *Mutations[T]) Update(ctx context.Context, input T, opts ...MutationOption) Outcome {
	var id string
	if m.resource.ID != nil {
		id = m.resource.ID(input)
	}
	return m.execute(
		ctx, Operation{
			Name:          OperationUpdate,
			EntityID:      id,
			Input:         input,
			SuccessStatus: m.resource.successStatus(OperationUpdate),
		}, func(ctx context.Context, svc Service[T]) (*MutationResult[T], error) {
			return svc.Update(ctx, input)
		}, opts,
	)
}

// Delete deletes the entity with id
func (m *Mutations[T]) Delete(ctx context.Context, id string, opts ...MutationOption) Outcome {
	return m.execute(
		ctx, Operation{
			Name:          OperationDelete,
			EntityID:      id,
			SuccessStatus: m.resource.successStatus(OperationDelete),
		}, func(ctx context.Context, svc Service[T]) (*MutationResult[T], error) {
			return svc.Delete(ctx, id)
		}, opts,
	)
}

// Do executes a custom action
func (m *Mutations[T]) Do(ctx context.Context, action Action[T], opts ...MutationOption) Outcome {
	status := action.SuccessStatus
	if status == 0 {
		status = nethttp.StatusOK
	}
	return m.execute(
		ctx, Operation{
			Name:           action.Name,
			EntityID:       action.EntityID,
			Input:          action.Input,
			SuccessStatus:  status,
			Targets:        action.Targets,
			NoInvalidation: action.NoInvalidation,
		}, action.Call, opts,
	)
}
