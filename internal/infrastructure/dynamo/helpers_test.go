package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrKey(t *testing.T) {
	key := strKey("store_key", "notifications:user_1_abc")
	require.Len(t, key, 1)
	s, ok := key["store_key"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "notifications:user_1_abc", s.Value)
}

func TestStoreKey_NamespacesPerUser(t *testing.T) {
	assert.Equal(t, "notifications:user_1_abc", storeKey("user_1_abc"))
	assert.NotEqual(t, storeKey("a"), storeKey("b"))
}
