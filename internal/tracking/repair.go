package tracking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"go.uber.org/zap"
)

type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// RepairResult is returned to the scheduler invoking the repair.
type RepairResult struct {
	Ok        bool   `json:"ok"`
	QueryID   string `json:"query_id,omitempty"`
	State     string `json:"state,omitempty"`
	Database  string `json:"database,omitempty"`
	Table     string `json:"table,omitempty"`
	Workgroup string `json:"workgroup,omitempty"`
	Output    string `json:"output,omitempty"`
}

// Repairer registers new dt=/family= partitions of the archive with Athena
// by running MSCK REPAIR TABLE.
type Repairer struct {
	api       AthenaAPI
	database  string
	table     string
	workgroup string
	output    string

	Poll    time.Duration
	Timeout time.Duration
	log     *zap.Logger
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewRepairer validates the target. output is the s3:// query result location.
func NewRepairer(api AthenaAPI, database, table, workgroup, output string, log *zap.Logger) (*Repairer, error) {
	database, table, output = strings.TrimSpace(database), strings.TrimSpace(table), strings.TrimSpace(output)
	if database == "" || table == "" || output == "" {
		return nil, errors.New("missing env: ATHENA_DATABASE, ATHENA_TABLE, ATHENA_OUTPUT are required")
	}
	if !strings.HasPrefix(output, "s3://") {
		return nil, errors.New("ATHENA_OUTPUT must start with s3://")
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("ATHENA_TABLE %q is not a plain table name", table)
	}
	if strings.TrimSpace(workgroup) == "" {
		workgroup = "primary"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Repairer{
		api:       api,
		database:  database,
		table:     table,
		workgroup: strings.TrimSpace(workgroup),
		output:    output,
		Poll:      2 * time.Second,
		Timeout:   60 * time.Second,
		log:       log,
	}, nil
}

func (r *Repairer) Repair(ctx context.Context) (RepairResult, error) {
	res := RepairResult{Database: r.database, Table: r.table, Workgroup: r.workgroup, Output: r.output}

	startOut, err := r.api.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(fmt.Sprintf("MSCK REPAIR TABLE %s;", r.table)),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(r.database),
		},
		WorkGroup: aws.String(r.workgroup),
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(r.output),
		},
	})
	if err != nil {
		return res, fmt.Errorf("StartQueryExecution: %w", err)
	}
	res.QueryID = aws.ToString(startOut.QueryExecutionId)
	log := r.log.With(zap.String("query_id", res.QueryID), zap.String("table", r.table))
	log.Info("partition repair started")

	deadline := time.Now().Add(r.Timeout)
	for {
		st, err := r.api.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(res.QueryID),
		})
		if err != nil {
			return res, fmt.Errorf("GetQueryExecution: %w", err)
		}

		var state athenatypes.QueryExecutionState
		var reason string
		if qe := st.QueryExecution; qe != nil && qe.Status != nil {
			state = qe.Status.State
			reason = aws.ToString(qe.Status.StateChangeReason)
		}
		res.State = string(state)

		switch state {
		case athenatypes.QueryExecutionStateSucceeded:
			res.Ok = true
			log.Info("partition repair succeeded")
			return res, nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			return res, fmt.Errorf("repair %s: %s", state, reason)
		}

		if !time.Now().Before(deadline) {
			res.State = "TIMEOUT"
			return res, fmt.Errorf("repair timed out waiting for qid=%s", res.QueryID)
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(r.Poll):
		}
	}
}
